package service

// ChangeHandler is implemented by components that need to be notified when
// the index changes
type ChangeHandler interface {
	HandleIndexChange()
}

// HandlerFunc adapts a function to ChangeHandler
type HandlerFunc func()

func (f HandlerFunc) HandleIndexChange() { f() }
