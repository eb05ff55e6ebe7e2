package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
)

// CheckConfigCompatibility checks that a config file written for configVersion can be
// read by a backtester at engineVersion.
//
// Compatibility Rules:
//   - An empty config version or "main" on either side skips the check
//   - Major versions must match exactly
//   - Minor version of the config must not be newer than the engine
//
// Examples:
//   - Engine 1.2.0, Config 1.2.0 -> OK
//   - Engine 1.3.0, Config 1.2.4 -> OK (older config keys are still read)
//   - Engine 1.2.0, Config 1.3.0 -> ERROR (config uses newer keys)
//   - Engine 2.0.0, Config 1.2.0 -> ERROR (major differs)
func CheckConfigCompatibility(engineVersion, configVersion string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if configVersion == "" || engineVersion == "main" || configVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid engine version '%s'", engineVersion)
	}

	configSemver, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid config version '%s'", configVersion)
	}

	if engineSemver.Major() != configSemver.Major() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"major version mismatch: backtester is %d.x.x but config is %d.x.x",
			engineSemver.Major(), configSemver.Major())
	}

	if configSemver.Minor() > engineSemver.Minor() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"config version %s is newer than backtester %s", configSemver, engineSemver)
	}

	return nil
}
