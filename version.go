package chatflow

// Version is the release version. Builds override it with
// -ldflags "-X github.com/aretw0/chatflow.Version=...".
var Version = "0.1.0"
