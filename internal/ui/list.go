package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/hesi-tools/memberdir/internal/models"
	"github.com/hesi-tools/memberdir/internal/store"
)

var (
	_ list.Item = documentItem{}
	_ list.Item = problemItem{}
)

// documentItem wraps a built [store.Member] to implement [list.Item].
type documentItem struct {
	doc store.Member
}

func (i documentItem) FilterValue() string { return i.doc.Title }
func (i documentItem) Title() string       { return i.doc.Title }
func (i documentItem) Description() string {
	country := i.doc.ImportCountryRaw
	if i.doc.Country != nil {
		country = i.doc.Country.Ref
	}
	if country == "" {
		country = "no country"
	}
	desc := fmt.Sprintf("%s • %s", country, i.doc.Status)
	if i.doc.DateJoined != "" {
		desc = fmt.Sprintf("%s • joined %s", desc, i.doc.DateJoined)
	}
	return desc
}

// problemItem wraps a [models.Problem] to implement [list.Item].
type problemItem struct {
	problem models.Problem
}

func (i problemItem) FilterValue() string { return i.problem.Detail }
func (i problemItem) Title() string {
	return fmt.Sprintf("row %d: %s", i.problem.RowNum, i.problem.Kind)
}
func (i problemItem) Description() string { return i.problem.Detail }
