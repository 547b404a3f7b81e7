package lti

import (
	"crypto/rsa"
	"fmt"

	jose "github.com/go-jose/go-jose/v3"
	"github.com/golang-jwt/jwt/v5"

	"ltitool/models"
)

// BuildToolJWKS assembles the public JSON Web Key Set for the given tool keys.
// Every key is published so platforms can still verify messages signed before
// a rotation.
func BuildToolJWKS(keys []*models.ToolKey) (*jose.JSONWebKeySet, error) {
	keySet := &jose.JSONWebKeySet{Keys: make([]jose.JSONWebKey, 0, len(keys))}

	for _, key := range keys {
		publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(key.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key for kid %s: %w", key.Kid, err)
		}

		keySet.Keys = append(keySet.Keys, jose.JSONWebKey{
			Key:       publicKey,
			KeyID:     key.Kid,
			Algorithm: "RS256",
			Use:       "sig",
		})
	}

	return keySet, nil
}

// RSAPublicKeyByKid finds the RSA public key with the given kid in a platform
// key set.
func RSAPublicKeyByKid(keySet *jose.JSONWebKeySet, kid string) (*rsa.PublicKey, error) {
	matches := keySet.Key(kid)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no key with kid %q in platform key set", kid)
	}

	rsaKey, ok := matches[0].Key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("platform key %q is not an RSA public key", kid)
	}
	return rsaKey, nil
}
