package view

import (
	"errors"
	"fmt"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/dom"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/model"
)

const (
	errorMessageAnchorNotFound = "view: anchor not found"
	errorMessageChildAttached  = "view: child root already attached"
)

var (
	// ErrAnchorNotFound indicates a selector with no element in the document.
	ErrAnchorNotFound = errors.New(errorMessageAnchorNotFound)
	// ErrChildAttached indicates a child whose root already has a parent.
	ErrChildAttached = errors.New(errorMessageChildAttached)
)

// CollectionListView renders one child view per entity into an anchor.
type CollectionListView[T model.Entity] struct {
	document   *dom.Document
	selector   string
	collection *model.Collection[T]
	newChild   func(T) ChildView
	children   []ChildView
}

// NewCollectionListView binds collection to the element matching selector.
func NewCollectionListView[T model.Entity](document *dom.Document, selector string, collection *model.Collection[T], newChild func(T) ChildView) *CollectionListView[T] {
	return &CollectionListView[T]{
		document:   document,
		selector:   selector,
		collection: collection,
		newChild:   newChild,
	}
}

// Render appends every child in collection order and returns the list view.
// Calling it again appends a second full set.
func (listView *CollectionListView[T]) Render() (*CollectionListView[T], error) {
	anchor, queryErr := listView.document.QueryOne(listView.selector)
	if queryErr != nil {
		return listView, fmt.Errorf("%w: %s", ErrAnchorNotFound, listView.selector)
	}

	listView.children = make([]ChildView, 0, listView.collection.Len())
	var renderErr error
	listView.collection.Each(func(index int, entity T) {
		if renderErr != nil {
			return
		}
		child := listView.newChild(entity)
		if childErr := child.Render(); childErr != nil {
			renderErr = fmt.Errorf("render child %d: %w", index, childErr)
			return
		}
		root := child.Root()
		if root == nil || root.Parent != nil {
			renderErr = fmt.Errorf("%w: child %d", ErrChildAttached, index)
			return
		}
		anchor.AppendChild(root)
		listView.children = append(listView.children, child)
	})
	return listView, renderErr
}

// Children returns the views of the most recent render.
func (listView *CollectionListView[T]) Children() []ChildView {
	return append([]ChildView(nil), listView.children...)
}

// CertificateChild adapts NewCertificateView to a child factory.
func CertificateChild(certificate *model.Certificate) ChildView {
	return NewCertificateView(certificate)
}

// ProgramCardChild returns a child factory for program cards.
func ProgramCardChild(dependencies Dependencies) func(*model.Program) ChildView {
	return func(program *model.Program) ChildView {
		return NewProgramCardView(program, dependencies)
	}
}
