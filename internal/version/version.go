package version

// Version is set during the build with ldflags.
var Version = "dev"

// Server is the value reported in the Server response header.
const Server = "Swift-S3-GW"
