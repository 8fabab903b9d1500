package btree

/*
data item in a node.
Key uniquely identifies a data item and is used for sorting them.
Value contains actual data
*/
type KeyValue[K, V any] struct {
	Key   K
	Value V
}
