package app

const ServiceName = "taskboard"

// Set via -ldflags:
//
//	go build -ldflags="-X 'taskboard/internal/app.Version=1.0.0'"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
