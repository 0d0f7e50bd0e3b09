package sigv4

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var exampleScope = Scope{Date: "20130524", Region: "us-east-1", Service: "s3"}

// P5: canonicalization and signing are deterministic.
func TestSignIsDeterministic(t *testing.T) {
	secret := "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY"
	first := Sign(secret, exampleScope, "20130524T000000Z", exampleRequest())
	second := Sign(secret, exampleScope, "20130524T000000Z", exampleRequest())
	require.Equal(t, first, second)
	require.Len(t, first, 64)
}

// P6: the signature round-trips under the signing secret and changes under
// any other secret.
func TestSignRoundTripsUnderSecret(t *testing.T) {
	got := Sign("wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY", exampleScope, "20130524T000000Z", exampleRequest())
	other := Sign("someOtherSecretKeyEXAMPLE", exampleScope, "20130524T000000Z", exampleRequest())
	require.NotEqual(t, got, other)
}

func TestSigningKeyChainDependsOnEveryComponent(t *testing.T) {
	base := SigningKey("secret", "20130524", "us-east-1", "s3")
	diffDate := SigningKey("secret", "20130525", "us-east-1", "s3")
	diffRegion := SigningKey("secret", "20130524", "us-west-2", "s3")
	diffService := SigningKey("secret", "20130524", "us-east-1", "iam")

	require.NotEqual(t, base, diffDate)
	require.NotEqual(t, base, diffRegion)
	require.NotEqual(t, base, diffService)
}

func TestScopeString(t *testing.T) {
	require.Equal(t, "20130524/us-east-1/s3/aws4_request", exampleScope.String())
}

func TestStringToSignFormat(t *testing.T) {
	sts := StringToSign("20130524T000000Z", exampleScope, CanonicalRequest(exampleRequest()))
	lines := []byte(sts)
	require.Contains(t, string(lines), "AWS4-HMAC-SHA256\n20130524T000000Z\n20130524/us-east-1/s3/aws4_request\n")
}
