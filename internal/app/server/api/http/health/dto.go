package health

// Input represents the input for the liveness endpoint
type Input struct{}

// Output represents the output for the liveness endpoint
type Output struct {
	Body Response
}

// Response is the liveness payload. Clients use this endpoint as a
// connectivity probe before starting a sync cycle, so it must stay
// cheap and dependency-free.
type Response struct {
	Status  string `json:"status" example:"OK" doc:"Health status of the service"`
	Service string `json:"service" example:"agrosync" doc:"Service name"`
}
