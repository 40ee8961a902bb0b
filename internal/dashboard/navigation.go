package dashboard

import "sync"

// Destination is a screen the navigator can show
type Destination string

const (
	DestinationAuthentication Destination = "authentication"
	DestinationDashboard      Destination = "dashboard"
)

// Navigator performs screen changes requested by the coordinator
type Navigator interface {
	Navigate(to Destination)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(to Destination)

func (f NavigatorFunc) Navigate(to Destination) { f(to) }

// PendingNavigator records the last requested destination until taken.
// The local API uses it to tell the page where to go after a call.
type PendingNavigator struct {
	mu   sync.Mutex
	next Destination
}

func (n *PendingNavigator) Navigate(to Destination) {
	n.mu.Lock()
	n.next = to
	n.mu.Unlock()
}

// Take returns and clears the pending destination ("" if none)
func (n *PendingNavigator) Take() Destination {
	n.mu.Lock()
	defer n.mu.Unlock()
	to := n.next
	n.next = ""
	return to
}
