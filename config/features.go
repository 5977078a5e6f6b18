package config

import "os"

type Features struct {
	NotificationSweepEnabled bool
	TokenSweepEnabled        bool
	RescheduleAfterSend      bool
	MetricsEnabled           bool
}

// LoadFeatures reads feature flags. Sweeps and metrics are on unless explicitly disabled.
func LoadFeatures() Features {
	return Features{
		NotificationSweepEnabled: os.Getenv("NOTIFICATION_SWEEP_ENABLED") != "false",
		TokenSweepEnabled:        os.Getenv("TOKEN_SWEEP_ENABLED") != "false",
		RescheduleAfterSend:      os.Getenv("RESCHEDULE_AFTER_SEND") == "true",
		MetricsEnabled:           os.Getenv("METRICS_ENABLED") != "false",
	}
}
