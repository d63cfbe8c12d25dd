package clipboard

import "clipcat/pkg/types"

// Monitor produces captured clips. Platform capture lives outside this
// module; captures arrive through an Inbox.
type Monitor interface {
	Start() error
	Stop() error
	OnChange(handler func(types.ClipItem))
}
