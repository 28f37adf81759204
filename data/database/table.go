package database

// Table names the collection/table a model is stored in.
type Table interface {
	GetTableName() string
}
