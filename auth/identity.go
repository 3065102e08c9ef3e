package auth

import "github.com/golang-jwt/jwt/v5"

// accountID extracts the subject claim from a JWT access token for
// display purposes. The claim is read without signature verification:
// the token was received directly from the provider over TLS and is
// never trusted for authorization decisions here. Opaque (non-JWT)
// tokens yield an empty account id.
func accountID(accessToken string) string {
	token, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return ""
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
