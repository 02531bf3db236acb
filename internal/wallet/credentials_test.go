package wallet

import "testing"

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestCredentialsKind(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		want    SecretKind
		wantErr bool
	}{
		{"seed", Credentials{SeedPhrase: testMnemonic}, SecretSeed, false},
		{"xpriv", Credentials{XPriv: "xprv123"}, SecretXPriv, false},
		{"xpub", Credentials{XPub: "xpub123"}, SecretXPub, false},
		{"none", Credentials{}, "", true},
		{"ambiguous", Credentials{SeedPhrase: testMnemonic, XPub: "xpub123"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := tt.creds.Kind()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Kind() error = %v, wantErr %v", err, tt.wantErr)
			}
			if kind != tt.want {
				t.Errorf("Kind() = %v, want %v", kind, tt.want)
			}
		})
	}
}

func TestCredentialsValidate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr bool
	}{
		{"valid seed", Credentials{SeedPhrase: testMnemonic, PIN: "1234"}, false},
		{"valid xpub", Credentials{XPub: "xpub123", PIN: "1234"}, false},
		{"invalid mnemonic", Credentials{SeedPhrase: "not a real mnemonic", PIN: "1234"}, true},
		{"missing pin", Credentials{SeedPhrase: testMnemonic}, true},
		{"no secret", Credentials{PIN: "1234"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTxTokenIDsDeduplicates(t *testing.T) {
	tx := &Tx{
		ID: "tx1",
		Inputs: []TxInput{
			{TokenID: "00", Value: 10},
			{TokenID: "01", Value: 5},
		},
		Outputs: []TxOutput{
			{TokenID: "01", Value: 5},
			{TokenID: "02", Value: 1},
			{TokenID: ""},
		},
	}

	ids := tx.TokenIDs()
	want := []string{"00", "01", "02"}
	if len(ids) != len(want) {
		t.Fatalf("TokenIDs() = %v, want %v", ids, want)
	}
	for i, id := range want {
		if ids[i] != id {
			t.Errorf("TokenIDs()[%d] = %q, want %q", i, ids[i], id)
		}
	}
}

func TestTokenMetadataEmpty(t *testing.T) {
	if !(TokenMetadata{TokenID: "01"}).Empty() {
		t.Error("metadata with only an ID should be empty")
	}
	if (TokenMetadata{Symbol: "TKA"}).Empty() {
		t.Error("metadata with a symbol should not be empty")
	}
	if (TokenMetadata{Banned: true}).Empty() {
		t.Error("banned metadata should not be empty")
	}
}
