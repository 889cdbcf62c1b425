package view

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/analytics"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/model"
)

// ChildView is one rendering unit bound to one entity. Constructors never
// render; Render writes the entity's markup into Root using the view's policy.
type ChildView interface {
	Render() error
	Root() *html.Node
}

// Dependencies are the collaborators shared by the dashboard views.
type Dependencies struct {
	Tracker  analytics.Tracker
	Reflower ImageReflower
	Logger   *zap.Logger
}

func (dependencies Dependencies) normalized() Dependencies {
	if dependencies.Tracker == nil {
		dependencies.Tracker = analytics.NopTracker{}
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	return dependencies
}

// EntityView renders entity through one template with one insertion policy.
type EntityView[T model.Entity] struct {
	entity       T
	root         *html.Node
	templateName string
	policy       Policy
}

// NewEntityView binds entity to root.
func NewEntityView[T model.Entity](entity T, root *html.Node, templateName string, policy Policy) *EntityView[T] {
	return &EntityView[T]{entity: entity, root: root, templateName: templateName, policy: policy}
}

// Render executes the template against the entity attributes and inserts
// the result. Rendering twice under PolicyAppend duplicates the markup.
func (entityView *EntityView[T]) Render() error {
	markup, renderErr := RenderTemplate(entityView.templateName, entityView.entity.Attributes())
	if renderErr != nil {
		return renderErr
	}
	return entityView.policy.apply(entityView.root, markup)
}

// Root returns the element the view renders into.
func (entityView *EntityView[T]) Root() *html.Node { return entityView.root }

// Entity returns the entity the view renders.
func (entityView *EntityView[T]) Entity() T { return entityView.entity }

// Policy returns how rendered markup is inserted into Root.
func (entityView *EntityView[T]) Policy() Policy { return entityView.policy }
