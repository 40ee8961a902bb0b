package dashboard

import "github.com/sweetshop/sweetshop-client/internal/inventory/domain"

// View is a snapshot of everything the dashboard screen renders
type View struct {
	Items          []domain.Item         `json:"items"`
	Criteria       domain.FilterCriteria `json:"criteria"`
	Categories     []string              `json:"categories"`
	Workflow       WorkflowView          `json:"workflow"`
	Loading        bool                  `json:"loading"`
	ErrorMessage   string                `json:"error_message,omitempty"`
	SuccessMessage string                `json:"success_message,omitempty"`
	Authenticated  bool                  `json:"authenticated"`
	Admin          bool                  `json:"admin"`
}

// WorkflowView flattens a WorkflowState for rendering
type WorkflowView struct {
	Kind     WorkflowKind      `json:"kind"`
	Item     *domain.Item      `json:"item,omitempty"`
	Draft    *domain.ItemDraft `json:"draft,omitempty"`
	Quantity int               `json:"quantity,omitempty"`
}

func newWorkflowView(w WorkflowState) WorkflowView {
	v := WorkflowView{Kind: w.Kind()}
	if item, ok := target(w); ok {
		v.Item = &item
	}

	switch s := w.(type) {
	case Creating:
		v.Draft = &s.Draft
	case Editing:
		v.Draft = &s.Draft
	case Purchasing:
		v.Quantity = s.Quantity
	case Restocking:
		v.Quantity = s.Quantity
	}
	return v
}

// View returns the current snapshot. Authentication flags are read from the
// session on every call.
func (c *Coordinator) View() View {
	authenticated := c.session.IsAuthenticated()
	admin := authenticated && c.session.IsAdmin()

	c.mu.Lock()
	defer c.mu.Unlock()

	items := append([]domain.Item{}, c.display...)
	return View{
		Items:          items,
		Criteria:       c.criteria,
		Categories:     append([]string(nil), domain.Categories...),
		Workflow:       newWorkflowView(c.workflow),
		Loading:        c.loading,
		ErrorMessage:   c.errMsg,
		SuccessMessage: c.okMsg,
		Authenticated:  authenticated,
		Admin:          admin,
	}
}
