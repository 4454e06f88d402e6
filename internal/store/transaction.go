package store

import "encoding/json"

// Transaction accumulates mutations that commit atomically: either every
// mutation in the transaction lands or none do.
type Transaction struct {
	mutations []mutation
}

type mutation struct {
	Create            any       `json:"create,omitempty"`
	CreateOrReplace   any       `json:"createOrReplace,omitempty"`
	CreateIfNotExists any       `json:"createIfNotExists,omitempty"`
	Patch             *patchOp  `json:"patch,omitempty"`
	Delete            *deleteOp `json:"delete,omitempty"`
}

type patchOp struct {
	ID           string         `json:"id"`
	Set          map[string]any `json:"set,omitempty"`
	SetIfMissing map[string]any `json:"setIfMissing,omitempty"`
	Unset        []string       `json:"unset,omitempty"`
	Insert       *insertOp      `json:"insert,omitempty"`
}

type insertOp struct {
	After string `json:"after"`
	Items []any  `json:"items"`
}

type deleteOp struct {
	ID string `json:"id"`
}

// NewTransaction returns an empty transaction.
func NewTransaction() *Transaction {
	return &Transaction{}
}

// Create appends a create mutation; the store assigns an ID when the
// document carries none.
func (t *Transaction) Create(doc any) *Transaction {
	t.mutations = append(t.mutations, mutation{Create: doc})
	return t
}

// CreateOrReplace appends an upsert-by-ID mutation.
func (t *Transaction) CreateOrReplace(doc any) *Transaction {
	t.mutations = append(t.mutations, mutation{CreateOrReplace: doc})
	return t
}

// CreateIfNotExists appends a create that is a no-op when the ID exists.
func (t *Transaction) CreateIfNotExists(doc any) *Transaction {
	t.mutations = append(t.mutations, mutation{CreateIfNotExists: doc})
	return t
}

// Patch appends a set/unset patch against one document.
func (t *Transaction) Patch(id string, set map[string]any, unset []string) *Transaction {
	t.mutations = append(t.mutations, mutation{Patch: &patchOp{ID: id, Set: set, Unset: unset}})
	return t
}

// AppendRef appends a keyed reference to an array field on one document,
// creating the array first when the field is absent.
func (t *Transaction) AppendRef(id, field string, ref *Reference) *Transaction {
	t.mutations = append(t.mutations, mutation{Patch: &patchOp{
		ID:           id,
		SetIfMissing: map[string]any{field: []any{}},
		Insert:       &insertOp{After: field + "[-1]", Items: []any{ref}},
	}})
	return t
}

// Delete appends a delete-by-ID mutation.
func (t *Transaction) Delete(id string) *Transaction {
	t.mutations = append(t.mutations, mutation{Delete: &deleteOp{ID: id}})
	return t
}

// Len returns the number of queued mutations.
func (t *Transaction) Len() int {
	return len(t.mutations)
}

// Empty reports whether the transaction holds no mutations.
func (t *Transaction) Empty() bool {
	return len(t.mutations) == 0
}

// MarshalJSON encodes the transaction as its bare mutation list.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.mutations)
}
