package eth

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checksummed = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "checksummed", in: checksummed, want: checksummed},
		{name: "lowercase", in: strings.ToLower(checksummed), want: checksummed},
		{name: "uppercase digits", in: "0x" + strings.ToUpper(checksummed[2:]), want: checksummed},
		{name: "no prefix", in: strings.ToLower(checksummed[2:]), want: checksummed},
		{name: "surrounding space", in: "  " + checksummed + " ", want: checksummed},
		{name: "bad checksum", in: "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", wantErr: true},
		{name: "too short", in: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeA", wantErr: true},
		{name: "not hex", in: "0xZZAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeAddress(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAddress)
				assert.False(t, IsAddress(tt.in))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSignAndRecover(t *testing.T) {
	signer, err := GenerateKeySigner()
	require.NoError(t, err)

	sigHex, err := signer.SignText("hello")
	require.NoError(t, err)

	sig, err := DecodeSignature(sigHex)
	require.NoError(t, err)

	addr, err := RecoverAddress("hello", sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), addr)

	// A different message recovers a different key
	other, err := RecoverAddress("hello!", sig)
	require.NoError(t, err)
	assert.NotEqual(t, signer.Address(), other)
}

func TestDecodeSignature(t *testing.T) {
	signer, err := GenerateKeySigner()
	require.NoError(t, err)
	sigHex, err := signer.SignText("msg")
	require.NoError(t, err)

	raw, err := hexutil.Decode(sigHex)
	require.NoError(t, err)
	require.Contains(t, []byte{27, 28}, raw[64])

	t.Run("without prefix", func(t *testing.T) {
		sig, err := DecodeSignature(strings.TrimPrefix(sigHex, "0x"))
		require.NoError(t, err)
		assert.Equal(t, raw[64]-27, sig[64])
	})

	t.Run("low recovery id", func(t *testing.T) {
		low := append([]byte(nil), raw...)
		low[64] -= 27
		sig, err := DecodeSignature(hexutil.Encode(low))
		require.NoError(t, err)
		assert.Equal(t, low, sig)
	})

	t.Run("bad recovery id", func(t *testing.T) {
		bad := append([]byte(nil), raw...)
		bad[64] = 5
		_, err := DecodeSignature(hexutil.Encode(bad))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := DecodeSignature(hexutil.Encode(raw[:64]))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("not hex", func(t *testing.T) {
		_, err := DecodeSignature("0xnothex")
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}

func TestNewKeySignerFromHex(t *testing.T) {
	// Well-known development key
	signer, err := NewKeySignerFromHex("0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", signer.Address().Hex())

	_, err = NewKeySignerFromHex("xyz")
	assert.Error(t, err)
}
