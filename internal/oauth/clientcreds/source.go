// Package clientcreds implements the JWT-bearer client credentials grant
// used to authenticate against a status webhook that requires OAuth.
package clientcreds

import (
	"bytes"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type TokenSource struct {
	clientID   string
	signingKey *rsa.PrivateKey
	tokenURL   string
	httpClient *http.Client
}

func NewTokenSource(authorizationURL, clientID string, signingKey *rsa.PrivateKey, options ...func(*TokenSource)) oauth2.TokenSource {
	source := TokenSource{
		clientID:   clientID,
		signingKey: signingKey,
		tokenURL:   authorizationURL,
		httpClient: http.DefaultClient,
	}

	for _, apply := range options {
		apply(&source)
	}

	return &source
}

// ReadPrivateKey loads the PEM-encoded RSA key the client assertion is
// signed with.
func ReadPrivateKey(path string) (*rsa.PrivateKey, error) {
	pemData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemData)
	if err != nil {
		return nil, fmt.Errorf("parse RSA private key: %w", err)
	}

	return key, nil
}

func (s *TokenSource) Token() (*oauth2.Token, error) {
	// backdate to tolerate clock skew between us and the auth server
	now := time.Now().UTC().Add(-30 * time.Second)

	jwtToken := jwt.NewWithClaims(
		jwt.SigningMethodRS256,
		jwt.MapClaims{
			"sub": s.clientID,
			"iss": s.clientID,
			"jti": uuid.New().String(),
			"aud": s.tokenURL,
			"nbf": now.Unix(),
			"iat": now.Unix(),
			"exp": now.Add(time.Minute * 5).Unix(),
		})

	signedToken, err := jwtToken.SignedString(s.signingKey)
	if err != nil {
		return nil, fmt.Errorf("jwt sign token: %w", err)
	}

	oauthToken, err := s.fetchToken(signedToken)
	if err != nil {
		return nil, fmt.Errorf("fetch token: %w", err)
	}

	return oauthToken, nil
}

func (s *TokenSource) fetchToken(signedToken string) (*oauth2.Token, error) {
	request, err := http.NewRequest("POST", s.tokenURL, s.prepareRequestBody(signedToken))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	request.Header.Add("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
	request.Header.Add("Accept", "application/json")

	response, err := s.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", response.StatusCode)
	}

	var tokenResponse tokenResponse
	if err := json.Unmarshal(body, &tokenResponse); err != nil {
		return nil, fmt.Errorf("unmarshal token response: %w", err)
	}

	tokenType := tokenResponse.TokenType

	// JWT is not accepted
	if tokenType == "JWT" {
		tokenType = "Bearer"
	}

	token := oauth2.Token{
		AccessToken: tokenResponse.AccessToken,
		TokenType:   tokenType,
		ExpiresIn:   int64(tokenResponse.ExpiresIn),
		Expiry:      time.Now().UTC().Add(time.Second * time.Duration(tokenResponse.ExpiresIn)),
	}

	return &token, nil
}

func (s *TokenSource) prepareRequestBody(clientAssertion string) io.Reader {
	data := url.Values{}
	data.Set("client_assertion", clientAssertion)
	data.Set("client_assertion_type", "urn:ietf:params:oauth:client-assertion-type:jwt-bearer")
	data.Set("grant_type", "client_credentials")

	return bytes.NewBufferString(data.Encode())
}

func WithHTTPClient(httpClient *http.Client) func(*TokenSource) {
	return func(s *TokenSource) {
		s.httpClient = httpClient
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}
