package services

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const zegoTokenVersion = "04"

var ErrVideoUnavailable = errors.New("video credentials are not configured")

type zegoTokenClaims struct {
	AppID   uint32 `json:"app_id"`
	UserID  string `json:"user_id"`
	Nonce   int32  `json:"nonce"`
	Ctime   int64  `json:"ctime"`
	Expire  int64  `json:"expire"`
	Payload string `json:"payload"`
}

// ZegoTokenService issues version 04 room tokens for the video SDK. The
// server secret is used as the AES key, so it must be 16, 24 or 32 bytes.
type ZegoTokenService struct {
	appID  uint32
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewZegoTokenService(appID uint32, secret string, ttl time.Duration) *ZegoTokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ZegoTokenService{appID: appID, secret: secret, ttl: ttl, now: time.Now}
}

func (s *ZegoTokenService) AppID() uint32 {
	return s.appID
}

func (s *ZegoTokenService) Generate(userID string, payload string) (string, error) {
	if s == nil || s.appID == 0 || s.secret == "" {
		return "", ErrVideoUnavailable
	}
	if userID == "" {
		return "", ErrInvalidInput
	}
	switch len(s.secret) {
	case 16, 24, 32:
	default:
		return "", fmt.Errorf("zego server secret must be 16, 24 or 32 bytes, got %d", len(s.secret))
	}

	var nonceBytes [4]byte
	if _, err := rand.Read(nonceBytes[:]); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	now := s.now().Unix()
	claims := zegoTokenClaims{
		AppID:   s.appID,
		UserID:  userID,
		Nonce:   int32(binary.BigEndian.Uint32(nonceBytes[:])),
		Ctime:   now,
		Expire:  now + int64(s.ttl/time.Second),
		Payload: payload,
	}
	plaintext, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal token claims: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("read iv: %w", err)
	}
	block, err := aes.NewCipher([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(encrypted, padded)

	var packed bytes.Buffer
	_ = binary.Write(&packed, binary.BigEndian, claims.Expire)
	_ = binary.Write(&packed, binary.BigEndian, uint16(len(iv)))
	packed.Write(iv)
	_ = binary.Write(&packed, binary.BigEndian, uint16(len(encrypted)))
	packed.Write(encrypted)

	return zegoTokenVersion + base64.StdEncoding.EncodeToString(packed.Bytes()), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}
