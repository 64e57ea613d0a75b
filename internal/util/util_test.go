package util

import (
	"bytes"
	"strings"
	"testing"
)

func TestArgon2id(t *testing.T) {
	params := DefaultArgon2idParams()
	password := "correct horse battery staple"
	salt := []byte("random salt")

	key, err := DeriveArgon2idKey(password, salt, params)
	if err != nil {
		t.Fatalf("DeriveArgon2idKey failed: %v", err)
	}

	if len(key) != 32 {
		t.Errorf("expected key length 32, got %d", len(key))
	}

	match, err := CompareArgon2idKey(password, salt, params, key)
	if err != nil {
		t.Fatalf("CompareArgon2idKey failed: %v", err)
	}
	if !match {
		t.Error("expected CompareArgon2idKey to return true")
	}

	match, _ = CompareArgon2idKey("wrong password", salt, params, key)
	if match {
		t.Error("expected CompareArgon2idKey to return false for wrong password")
	}
}

func TestHashPassword(t *testing.T) {
	params, err := Argon2idProfile(KDFProfileInteractive)
	if err != nil {
		t.Fatalf("Argon2idProfile failed: %v", err)
	}

	h1, err := HashPassword("hunter2", params)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.HasPrefix(h1, "$argon2id$v=19$m=19456,t=2,p=1$") {
		t.Errorf("unexpected hash encoding %q", h1)
	}
	if strings.Contains(h1, "hunter2") {
		t.Error("hash must not contain the password")
	}

	h2, _ := HashPassword("hunter2", params)
	if h1 == h2 {
		t.Error("hashes of the same password must differ (random salt)")
	}

	ok, err := VerifyPassword("hunter2", h1)
	if err != nil || !ok {
		t.Fatalf("VerifyPassword(correct) = %v, %v", ok, err)
	}
	ok, err = VerifyPassword("hunter3", h1)
	if err != nil || ok {
		t.Fatalf("VerifyPassword(wrong) = %v, %v", ok, err)
	}
}

func TestHashPassword_RejectsWeakParams(t *testing.T) {
	p := DefaultArgon2idParams()
	p.MemoryKiB = 1024
	if _, err := HashPassword("pw", p); err == nil {
		t.Fatal("expected error for weak params")
	}
}

func TestVerifyPassword_Malformed(t *testing.T) {
	cases := []string{
		"",
		"5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8",
		"$argon2i$v=19$m=19456,t=2,p=1$c2FsdA$a2V5",
		"$argon2id$v=16$m=19456,t=2,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$garbage$c2FsdA$a2V5",
		"$argon2id$v=19$m=19456,t=2,p=1$!!!$a2V5",
		"$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$a2V5",
	}
	for _, c := range cases {
		if _, err := VerifyPassword("pw", c); err != ErrMalformedHash {
			t.Errorf("VerifyPassword(%q) error = %v, want ErrMalformedHash", c, err)
		}
	}
}

func TestRandom(t *testing.T) {
	b1, err := RandomBytes(16)
	if err != nil {
		t.Fatalf("RandomBytes failed: %v", err)
	}
	if len(b1) != 16 {
		t.Errorf("expected 16 bytes, got %d", len(b1))
	}
	b2, _ := RandomBytes(16)
	if bytes.Equal(b1, b2) {
		t.Error("RandomBytes should not repeat")
	}
	if _, err := RandomBytes(0); err == nil {
		t.Error("RandomBytes(0) should fail")
	}
}

func TestDefaultArgon2idParams_MeetsOWASPMinimums(t *testing.T) {
	p := DefaultArgon2idParams()
	if p.Time < 3 {
		t.Errorf("default Time=%d is below OWASP recommended minimum of 3", p.Time)
	}
	if p.MemoryKiB < 64*1024 {
		t.Errorf("default MemoryKiB=%d is below OWASP recommended minimum of %d (64 MiB)", p.MemoryKiB, 64*1024)
	}
	if p.Parallelism < 1 {
		t.Errorf("default Parallelism=%d must be at least 1", p.Parallelism)
	}
	if p.KeyLen != 32 {
		t.Errorf("default KeyLen=%d must be 32", p.KeyLen)
	}
}

func TestArgon2idProfile_AllProfiles(t *testing.T) {
	profiles := []struct {
		name      string
		minTime   uint32
		minMemKiB uint32
	}{
		{KDFProfileInteractive, 2, 19 * 1024},
		{KDFProfileModerate, 3, 64 * 1024},
		{KDFProfileSensitive, 4, 128 * 1024},
	}

	for _, tc := range profiles {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Argon2idProfile(tc.name)
			if err != nil {
				t.Fatalf("Argon2idProfile(%q) failed: %v", tc.name, err)
			}
			if p.Time < tc.minTime {
				t.Errorf("profile %q: Time=%d, want at least %d", tc.name, p.Time, tc.minTime)
			}
			if p.MemoryKiB < tc.minMemKiB {
				t.Errorf("profile %q: MemoryKiB=%d, want at least %d", tc.name, p.MemoryKiB, tc.minMemKiB)
			}
			if p.Parallelism < 1 {
				t.Errorf("profile %q: Parallelism must be at least 1", tc.name)
			}
			if p.KeyLen != 32 {
				t.Errorf("profile %q: KeyLen=%d, want 32", tc.name, p.KeyLen)
			}
			// Every profile must pass validation.
			if err := ValidateArgon2idParams(p); err != nil {
				t.Errorf("profile %q failed validation: %v", tc.name, err)
			}
		})
	}
}

func TestArgon2idProfile_UnknownReturnsError(t *testing.T) {
	_, err := Argon2idProfile("nonexistent")
	if err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestArgon2idProfile_Ordering(t *testing.T) {
	inter, _ := Argon2idProfile(KDFProfileInteractive)
	mod, _ := Argon2idProfile(KDFProfileModerate)
	sens, _ := Argon2idProfile(KDFProfileSensitive)

	// Profiles should be ordered by cost: interactive < moderate < sensitive.
	if inter.Time > mod.Time || inter.MemoryKiB > mod.MemoryKiB {
		t.Error("interactive profile should have lower or equal cost than moderate")
	}
	if mod.Time > sens.Time || mod.MemoryKiB > sens.MemoryKiB {
		t.Error("moderate profile should have lower or equal cost than sensitive")
	}
}

func TestValidateArgon2idParams(t *testing.T) {
	t.Run("ValidParams", func(t *testing.T) {
		p := DefaultArgon2idParams()
		if err := ValidateArgon2idParams(p); err != nil {
			t.Errorf("default params should be valid: %v", err)
		}
	})

	t.Run("KeyLenNot32", func(t *testing.T) {
		p := DefaultArgon2idParams()
		p.KeyLen = 16
		if err := ValidateArgon2idParams(p); err == nil {
			t.Error("expected error for KeyLen != 32")
		}
	})

	t.Run("TimeTooLow", func(t *testing.T) {
		p := DefaultArgon2idParams()
		p.Time = 0
		if err := ValidateArgon2idParams(p); err == nil {
			t.Error("expected error for Time=0")
		}
	})

	t.Run("MemoryTooLow", func(t *testing.T) {
		p := DefaultArgon2idParams()
		p.MemoryKiB = 1024 // 1 MiB, far below the 19 MiB minimum
		if err := ValidateArgon2idParams(p); err == nil {
			t.Error("expected error for MemoryKiB=1024")
		}
	})

	t.Run("ParallelismTooLow", func(t *testing.T) {
		p := DefaultArgon2idParams()
		p.Parallelism = 0
		if err := ValidateArgon2idParams(p); err == nil {
			t.Error("expected error for Parallelism=0")
		}
	})

	t.Run("MinimumAcceptableParams", func(t *testing.T) {
		p := Argon2idParams{
			Time:        MinArgon2Time,
			MemoryKiB:   MinArgon2MemoryKiB,
			Parallelism: MinArgon2Parallel,
			KeyLen:      32,
		}
		if err := ValidateArgon2idParams(p); err != nil {
			t.Errorf("minimum acceptable params should be valid: %v", err)
		}
	})
}
