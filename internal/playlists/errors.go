package playlists

// PartialError reports a publish run that stopped early.
// Created lists the playlists that exist remotely despite the failure.
type PartialError struct {
	Created []Created
	Err     error
}

// Error returns the underlying failure's message unchanged.
func (e *PartialError) Error() string {
	return e.Err.Error()
}

func (e *PartialError) Unwrap() error {
	return e.Err
}
