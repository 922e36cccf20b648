package main

// Version is the release of the ubersstv command
const Version = "1.0.0"
