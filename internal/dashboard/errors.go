package dashboard

// ValidationError rejects user input before any fetch is started.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// GeolocationError reports that the position of the user could not be
// determined. It never changes controller state.
type GeolocationError struct {
	Err error
}

func (e *GeolocationError) Error() string {
	return "unable to get your location: " + e.Err.Error()
}

func (e *GeolocationError) Unwrap() error { return e.Err }
