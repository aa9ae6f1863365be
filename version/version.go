package version

// Version is the binding generator version. It is stamped into the header of
// every generated artifact and overridden at release time via ldflags.
var Version = "0.0.0"
