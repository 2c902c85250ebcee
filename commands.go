package cocodb

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Request arguments as the cocodb service names them.
type (
	databaseArgs struct {
		DatabaseName string `json:"databaseName"`
	}

	tableArgs struct {
		TableName string `json:"tableName"`
	}

	documentArgs struct {
		TableName  string `json:"tableName"`
		DocumentID string `json:"documentId"`
	}

	putArgs struct {
		TableName string          `json:"tableName"`
		Document  json.RawMessage `json:"document"`
	}

	updateArgs struct {
		TableName  string          `json:"tableName"`
		DocumentID string          `json:"documentId"`
		Document   json.RawMessage `json:"document"`
	}

	indexArgs struct {
		TableName string `json:"tableName"`
		JSONField string `json:"jsonField"`
		DataType  string `json:"dataType"`
		IsUnique  bool   `json:"isUnique"`
		IsNotNull bool   `json:"isNotNull"`
	}

	lookupArgs struct {
		TableName   string          `json:"tableName"`
		QueryObject json.RawMessage `json:"queryObject"`
	}

	mathAddArgs struct {
		TableName            string             `json:"tableName"`
		DocumentID           string             `json:"documentId"`
		JSONFieldsIncrements map[string]float64 `json:"jsonFieldsIncrements"`
	}

	queryArgs struct {
		TableName         string   `json:"tableName"`
		QueryString       string   `json:"queryString"`
		UseIndexForFields []string `json:"useIndexForFields,omitempty"`
	}
)

// Index describes a secondary index on a JSON field of a table.
type Index struct {
	JSONField string
	DataType  string // SQL column type, e.g. "INT" or "VARCHAR(50)"
	IsUnique  bool
	IsNotNull bool
}

// NewHelloRequest checks that the server is reachable and the credential accepted.
func NewHelloRequest() Request {
	return Request{Fn: FnHello}
}

// NewCreateDbRequest creates a database.
func NewCreateDbRequest(databaseName string) (Request, error) {
	if err := requireName("databaseName", databaseName); err != nil {
		return Request{}, err
	}
	return Request{Fn: FnCreateDb, Args: databaseArgs{DatabaseName: databaseName}}, nil
}

// NewDeleteDbRequest deletes a database.
func NewDeleteDbRequest(databaseName string) (Request, error) {
	if err := requireName("databaseName", databaseName); err != nil {
		return Request{}, err
	}
	return Request{Fn: FnDeleteDb, Args: databaseArgs{DatabaseName: databaseName}}, nil
}

// NewCreateTableRequest creates a table. tableName is "database.table".
func NewCreateTableRequest(tableName string) (Request, error) {
	if err := requireName("tableName", tableName); err != nil {
		return Request{}, err
	}
	return Request{Fn: FnCreateTable, Args: tableArgs{TableName: tableName}}, nil
}

// NewDeleteTableRequest deletes a table. tableName is "database.table".
func NewDeleteTableRequest(tableName string) (Request, error) {
	if err := requireName("tableName", tableName); err != nil {
		return Request{}, err
	}
	return Request{Fn: FnDeleteTable, Args: tableArgs{TableName: tableName}}, nil
}

// NewPutRequest stores document, which must encode to a JSON object.
func NewPutRequest(tableName string, document any) (Request, error) {
	if err := requireName("tableName", tableName); err != nil {
		return Request{}, err
	}
	doc, err := encodeObject("document", document)
	if err != nil {
		return Request{}, err
	}
	return Request{Fn: FnPut, Args: putArgs{TableName: tableName, Document: doc}}, nil
}

// NewGetRequest fetches the document stored under documentID.
func NewGetRequest(tableName, documentID string) (Request, error) {
	args, err := newDocumentArgs(tableName, documentID)
	if err != nil {
		return Request{}, err
	}
	return Request{Fn: FnGet, Args: args}, nil
}

// NewUpdateRequest replaces the document stored under documentID.
func NewUpdateRequest(tableName, documentID string, document any) (Request, error) {
	args, err := newDocumentArgs(tableName, documentID)
	if err != nil {
		return Request{}, err
	}
	doc, err := encodeObject("document", document)
	if err != nil {
		return Request{}, err
	}
	return Request{Fn: FnUpdate, Args: updateArgs{
		TableName:  args.TableName,
		DocumentID: args.DocumentID,
		Document:   doc,
	}}, nil
}

// NewDeleteDocumentRequest removes the document stored under documentID.
func NewDeleteDocumentRequest(tableName, documentID string) (Request, error) {
	args, err := newDocumentArgs(tableName, documentID)
	if err != nil {
		return Request{}, err
	}
	return Request{Fn: FnDeleteDocument, Args: args}, nil
}

// NewCreateIndexRequest declares an index on one JSON field of a table.
func NewCreateIndexRequest(tableName string, index Index) (Request, error) {
	if err := requireName("tableName", tableName); err != nil {
		return Request{}, err
	}
	if err := requireName("jsonField", index.JSONField); err != nil {
		return Request{}, err
	}
	if err := requireName("dataType", index.DataType); err != nil {
		return Request{}, err
	}
	return Request{Fn: FnCreateIndex, Args: indexArgs{
		TableName: tableName,
		JSONField: index.JSONField,
		DataType:  index.DataType,
		IsUnique:  index.IsUnique,
		IsNotNull: index.IsNotNull,
	}}, nil
}

// NewGetFromIndexRequest looks documents up by fields that are indexed.
func NewGetFromIndexRequest(tableName string, queryObject any) (Request, error) {
	args, err := newLookupArgs(tableName, queryObject)
	if err != nil {
		return Request{}, err
	}
	return Request{Fn: FnGetFromIndex, Args: args}, nil
}

// NewGetFromNonIndexRequest looks documents up by arbitrary fields with a table scan.
func NewGetFromNonIndexRequest(tableName string, queryObject any) (Request, error) {
	args, err := newLookupArgs(tableName, queryObject)
	if err != nil {
		return Request{}, err
	}
	return Request{Fn: FnGetFromNonIndex, Args: args}, nil
}

// NewMathAddRequest adds each increment to the matching numeric field.
func NewMathAddRequest(tableName, documentID string, increments map[string]float64) (Request, error) {
	args, err := newDocumentArgs(tableName, documentID)
	if err != nil {
		return Request{}, err
	}
	if len(increments) == 0 {
		return Request{}, fmt.Errorf("%w: jsonFieldsIncrements is empty", ErrInvalidArgument)
	}
	return Request{Fn: FnMathAdd, Args: mathAddArgs{
		TableName:            args.TableName,
		DocumentID:           args.DocumentID,
		JSONFieldsIncrements: increments,
	}}, nil
}

// NewQueryRequest runs a query string against a table. useIndexForFields
// names the indexed fields the query may rely on.
func NewQueryRequest(tableName, queryString string, useIndexForFields ...string) (Request, error) {
	if err := requireName("tableName", tableName); err != nil {
		return Request{}, err
	}
	if err := requireName("queryString", queryString); err != nil {
		return Request{}, err
	}
	return Request{Fn: FnQuery, Args: queryArgs{
		TableName:         tableName,
		QueryString:       queryString,
		UseIndexForFields: useIndexForFields,
	}}, nil
}

func newDocumentArgs(tableName, documentID string) (documentArgs, error) {
	if err := requireName("tableName", tableName); err != nil {
		return documentArgs{}, err
	}
	if err := requireName("documentId", documentID); err != nil {
		return documentArgs{}, err
	}
	return documentArgs{TableName: tableName, DocumentID: documentID}, nil
}

func newLookupArgs(tableName string, queryObject any) (lookupArgs, error) {
	if err := requireName("tableName", tableName); err != nil {
		return lookupArgs{}, err
	}
	query, err := encodeObject("queryObject", queryObject)
	if err != nil {
		return lookupArgs{}, err
	}
	return lookupArgs{TableName: tableName, QueryObject: query}, nil
}

func requireName(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidArgument, field)
	}
	return nil
}

// encodeObject marshals v and checks that it is a JSON object.
func encodeObject(field string, v any) (json.RawMessage, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: %s is nil", ErrInvalidArgument, field)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, field, err)
	}
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		return nil, fmt.Errorf("%w: %s must be a JSON object", ErrInvalidArgument, field)
	}
	return raw, nil
}
