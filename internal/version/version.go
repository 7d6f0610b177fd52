package version

// Version is the rpl release version.
const Version = "0.1.0"
