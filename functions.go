package cocodb

// Function names a remote operation understood by the cocodb service.
type Function string

const (
	FnHello           Function = "hello"
	FnCreateDb        Function = "createDb"
	FnDeleteDb        Function = "deleteDb"
	FnCreateTable     Function = "createTable"
	FnDeleteTable     Function = "deleteTable"
	FnPut             Function = "put"
	FnGet             Function = "get"
	FnUpdate          Function = "update"
	FnDeleteDocument  Function = "deleteDocument"
	FnCreateIndex     Function = "createIndex"
	FnGetFromIndex    Function = "getFromIndex"
	FnGetFromNonIndex Function = "getFromNonIndex"
	FnMathAdd         Function = "mathAdd"
	FnQuery           Function = "query"
)

var knownFunctions = map[Function]struct{}{
	FnHello:           {},
	FnCreateDb:        {},
	FnDeleteDb:        {},
	FnCreateTable:     {},
	FnDeleteTable:     {},
	FnPut:             {},
	FnGet:             {},
	FnUpdate:          {},
	FnDeleteDocument:  {},
	FnCreateIndex:     {},
	FnGetFromIndex:    {},
	FnGetFromNonIndex: {},
	FnMathAdd:         {},
	FnQuery:           {},
}

// Valid reports whether f is a recognized remote operation.
func (f Function) Valid() bool {
	_, ok := knownFunctions[f]
	return ok
}
