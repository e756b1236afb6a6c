package common

// AuthorizationHeaderName carries the bearer access token on HTTP requests.
const AuthorizationHeaderName = "Authorization"

// UniqueKeyLength is the number of decimal digits in a connection key.
const UniqueKeyLength = 10
