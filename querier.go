package cocodb

import (
	"context"
	"encoding/json"
)

// Querier exposes the cocodb remote operations. Each method returns the
// server's raw response payload.
type Querier interface {
	Hello(ctx context.Context) (json.RawMessage, error)
	CreateDb(ctx context.Context, databaseName string) (json.RawMessage, error)
	DeleteDb(ctx context.Context, databaseName string) (json.RawMessage, error)
	CreateTable(ctx context.Context, tableName string) (json.RawMessage, error)
	DeleteTable(ctx context.Context, tableName string) (json.RawMessage, error)
	Put(ctx context.Context, tableName string, document any) (json.RawMessage, error)
	Get(ctx context.Context, tableName, documentID string) (json.RawMessage, error)
	Update(ctx context.Context, tableName, documentID string, document any) (json.RawMessage, error)
	DeleteDocument(ctx context.Context, tableName, documentID string) (json.RawMessage, error)
	CreateIndex(ctx context.Context, tableName string, index Index) (json.RawMessage, error)
	GetFromIndex(ctx context.Context, tableName string, queryObject any) (json.RawMessage, error)
	GetFromNonIndex(ctx context.Context, tableName string, queryObject any) (json.RawMessage, error)
	MathAdd(ctx context.Context, tableName, documentID string, increments map[string]float64) (json.RawMessage, error)
	Query(ctx context.Context, tableName, queryString string, useIndexForFields ...string) (json.RawMessage, error)
}

// Sender is the part of a Session the querier needs.
type Sender interface {
	Send(ctx context.Context, req Request) (json.RawMessage, error)
}

func NewQuerier(sender Sender) Querier {
	return &querier{
		sender: sender,
	}
}

type querier struct {
	sender Sender
}

// send forwards a built request, or the error that building it produced.
func (q *querier) send(ctx context.Context, req Request, err error) (json.RawMessage, error) {
	if err != nil {
		return nil, err
	}
	return q.sender.Send(ctx, req)
}

func (q *querier) Hello(ctx context.Context) (json.RawMessage, error) {
	return q.sender.Send(ctx, NewHelloRequest())
}

func (q *querier) CreateDb(ctx context.Context, databaseName string) (json.RawMessage, error) {
	req, err := NewCreateDbRequest(databaseName)
	return q.send(ctx, req, err)
}

func (q *querier) DeleteDb(ctx context.Context, databaseName string) (json.RawMessage, error) {
	req, err := NewDeleteDbRequest(databaseName)
	return q.send(ctx, req, err)
}

func (q *querier) CreateTable(ctx context.Context, tableName string) (json.RawMessage, error) {
	req, err := NewCreateTableRequest(tableName)
	return q.send(ctx, req, err)
}

func (q *querier) DeleteTable(ctx context.Context, tableName string) (json.RawMessage, error) {
	req, err := NewDeleteTableRequest(tableName)
	return q.send(ctx, req, err)
}

// Put stores a new document. The response carries the generated documentId.
func (q *querier) Put(ctx context.Context, tableName string, document any) (json.RawMessage, error) {
	req, err := NewPutRequest(tableName, document)
	return q.send(ctx, req, err)
}

func (q *querier) Get(ctx context.Context, tableName, documentID string) (json.RawMessage, error) {
	req, err := NewGetRequest(tableName, documentID)
	return q.send(ctx, req, err)
}

func (q *querier) Update(ctx context.Context, tableName, documentID string, document any) (json.RawMessage, error) {
	req, err := NewUpdateRequest(tableName, documentID, document)
	return q.send(ctx, req, err)
}

func (q *querier) DeleteDocument(ctx context.Context, tableName, documentID string) (json.RawMessage, error) {
	req, err := NewDeleteDocumentRequest(tableName, documentID)
	return q.send(ctx, req, err)
}

func (q *querier) CreateIndex(ctx context.Context, tableName string, index Index) (json.RawMessage, error) {
	req, err := NewCreateIndexRequest(tableName, index)
	return q.send(ctx, req, err)
}

func (q *querier) GetFromIndex(ctx context.Context, tableName string, queryObject any) (json.RawMessage, error) {
	req, err := NewGetFromIndexRequest(tableName, queryObject)
	return q.send(ctx, req, err)
}

func (q *querier) GetFromNonIndex(ctx context.Context, tableName string, queryObject any) (json.RawMessage, error) {
	req, err := NewGetFromNonIndexRequest(tableName, queryObject)
	return q.send(ctx, req, err)
}

// MathAdd increments numeric fields of a document in place.
func (q *querier) MathAdd(ctx context.Context, tableName, documentID string, increments map[string]float64) (json.RawMessage, error) {
	req, err := NewMathAddRequest(tableName, documentID, increments)
	return q.send(ctx, req, err)
}

func (q *querier) Query(ctx context.Context, tableName, queryString string, useIndexForFields ...string) (json.RawMessage, error) {
	req, err := NewQueryRequest(tableName, queryString, useIndexForFields...)
	return q.send(ctx, req, err)
}
