// Copyright 2019 Anapaya Systems
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

package env

import (
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/newsdesk/newsdesk/pkg/log"
)

var startupBanner = strings.Repeat("=", 20)

// LogAppStarted should be called by applications as soon as logging is
// initialized.
func LogAppStarted(svcType, elemID string) error {
	inDocker, err := runsInDocker()
	if err != nil {
		return err
	}
	info := fmt.Sprintf("%s %s service started %s", startupBanner, svcType, startupBanner)
	log.Info(info, "id", elemID, "pid", os.Getpid(), "euid", os.Geteuid(),
		"user", userName(), "docker", inDocker)
	return nil
}

// LogAppStopped should be called by applications just before they exit.
func LogAppStopped(svcType, elemID string) {
	log.Info(fmt.Sprintf("%s %s service stopped %s", startupBanner, svcType, startupBanner),
		"id", elemID)
}

func userName() string {
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	return u.Username
}

func runsInDocker() (bool, error) {
	_, err := os.Stat("/.dockerenv")
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
