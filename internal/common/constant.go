package common

// AuthHeaderName is the HTTP header carrying the admin bearer token.
const AuthHeaderName = "Authorization"
