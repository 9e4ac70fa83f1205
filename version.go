package concierge

// Version is the release of the module. Release builds override it with -ldflags "-X".
var Version = "0.1.0-dev"
