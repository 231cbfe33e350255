package common

// AccessTokenHeaderName is the gRPC metadata key carrying the access token.
const AccessTokenHeaderName = "access_token"

// RefreshTokenCookieName is the HTTP-only cookie holding the refresh token.
const RefreshTokenCookieName = "refreshToken"

// RefreshTokenHeaderName is the fallback header for clients that cannot send cookies.
const RefreshTokenHeaderName = "X-Refresh-Token"
