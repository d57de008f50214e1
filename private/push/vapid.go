// Copyright 2026 Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package push

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/newsdesk/newsdesk/pkg/private/serrors"
)

// Names of the VAPID key files in the config directory.
const (
	VAPIDPublicKeyFile  = "vapid_public.key"
	VAPIDPrivateKeyFile = "vapid_private.key"
)

// VAPIDKeys is an application server key pair, base64url encoded.
type VAPIDKeys struct {
	Public  string
	Private string
}

// GenerateVAPIDKeys creates a new key pair.
func GenerateVAPIDKeys() (VAPIDKeys, error) {
	priv, pub, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return VAPIDKeys{}, serrors.Wrap("generating VAPID keys", err)
	}
	return VAPIDKeys{Public: pub, Private: priv}, nil
}

// LoadVAPIDKeys reads the key pair from dir. If neither file exists, ok is
// false and no error is returned.
func LoadVAPIDKeys(dir string) (keys VAPIDKeys, ok bool, err error) {
	pub, err := os.ReadFile(filepath.Join(dir, VAPIDPublicKeyFile))
	if errors.Is(err, fs.ErrNotExist) {
		if _, err := os.Stat(filepath.Join(dir, VAPIDPrivateKeyFile)); err == nil {
			return VAPIDKeys{}, false, serrors.New("VAPID public key missing", "dir", dir)
		}
		return VAPIDKeys{}, false, nil
	}
	if err != nil {
		return VAPIDKeys{}, false, serrors.Wrap("reading VAPID public key", err, "dir", dir)
	}
	priv, err := os.ReadFile(filepath.Join(dir, VAPIDPrivateKeyFile))
	if err != nil {
		return VAPIDKeys{}, false, serrors.Wrap("reading VAPID private key", err, "dir", dir)
	}
	return VAPIDKeys{
		Public:  strings.TrimSpace(string(pub)),
		Private: strings.TrimSpace(string(priv)),
	}, true, nil
}

// WriteVAPIDKeys stores the key pair in dir. The private key is only
// readable by the owner.
func WriteVAPIDKeys(dir string, keys VAPIDKeys) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return serrors.Wrap("creating key directory", err, "dir", dir)
	}
	err := os.WriteFile(filepath.Join(dir, VAPIDPublicKeyFile), []byte(keys.Public+"\n"), 0o644)
	if err != nil {
		return serrors.Wrap("writing VAPID public key", err, "dir", dir)
	}
	err = os.WriteFile(filepath.Join(dir, VAPIDPrivateKeyFile), []byte(keys.Private+"\n"), 0o600)
	if err != nil {
		return serrors.Wrap("writing VAPID private key", err, "dir", dir)
	}
	return nil
}
