package internal

// Version is the rode release, overridden at build time with
// -ldflags "-X codeberg.org/snonux/rode/internal.Version=...".
var Version = "0.1.0"
