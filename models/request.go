package models

// RequestState is the lifecycle of one outbound operation
type RequestState string

const (
	RequestPending   RequestState = "pending"
	RequestSucceeded RequestState = "succeeded"
	RequestFailed    RequestState = "failed"
)
