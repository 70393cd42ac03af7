package services

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testZegoSecret = "0123456789abcdef0123456789abcdef"

func decodeZegoToken(t *testing.T, token, secret string) (int64, zegoTokenClaims) {
	t.Helper()

	require.True(t, strings.HasPrefix(token, zegoTokenVersion))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(token, zegoTokenVersion))
	require.NoError(t, err)

	reader := bytes.NewReader(raw)
	var expire int64
	require.NoError(t, binary.Read(reader, binary.BigEndian, &expire))

	var ivLen uint16
	require.NoError(t, binary.Read(reader, binary.BigEndian, &ivLen))
	iv := make([]byte, ivLen)
	_, err = reader.Read(iv)
	require.NoError(t, err)

	var cipherLen uint16
	require.NoError(t, binary.Read(reader, binary.BigEndian, &cipherLen))
	encrypted := make([]byte, cipherLen)
	_, err = reader.Read(encrypted)
	require.NoError(t, err)
	require.Zero(t, reader.Len())

	block, err := aes.NewCipher([]byte(secret))
	require.NoError(t, err)
	plain := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, encrypted)
	padding := int(plain[len(plain)-1])
	plain = plain[:len(plain)-padding]

	var claims zegoTokenClaims
	require.NoError(t, json.Unmarshal(plain, &claims))
	return expire, claims
}

func TestZegoTokenServiceGenerateRoundTrip(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	svc := NewZegoTokenService(123456789, testZegoSecret, 2*time.Hour)
	svc.now = func() time.Time { return issued }

	token, err := svc.Generate("42", "")
	require.NoError(t, err)

	expire, claims := decodeZegoToken(t, token, testZegoSecret)
	require.Equal(t, issued.Add(2*time.Hour).Unix(), expire)
	require.Equal(t, uint32(123456789), claims.AppID)
	require.Equal(t, "42", claims.UserID)
	require.Equal(t, issued.Unix(), claims.Ctime)
	require.Equal(t, expire, claims.Expire)
}

func TestZegoTokenServiceTokensDiffer(t *testing.T) {
	svc := NewZegoTokenService(1, testZegoSecret, time.Hour)

	first, err := svc.Generate("42", "")
	require.NoError(t, err)
	second, err := svc.Generate("42", "")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestZegoTokenServiceRequiresCredentials(t *testing.T) {
	tests := []struct {
		name string
		svc  *ZegoTokenService
	}{
		{name: "nil service", svc: nil},
		{name: "missing app id", svc: NewZegoTokenService(0, testZegoSecret, time.Hour)},
		{name: "missing secret", svc: NewZegoTokenService(1, "", time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Generate("42", "")
			require.ErrorIs(t, err, ErrVideoUnavailable)
		})
	}
}

func TestZegoTokenServiceRejectsBadSecretLength(t *testing.T) {
	svc := NewZegoTokenService(1, "short", time.Hour)

	_, err := svc.Generate("42", "")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrVideoUnavailable)
}

func TestZegoTokenServiceRequiresUser(t *testing.T) {
	svc := NewZegoTokenService(1, testZegoSecret, time.Hour)

	_, err := svc.Generate("", "")
	require.ErrorIs(t, err, ErrInvalidInput)
}
