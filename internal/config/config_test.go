package config_test

import (
	"errors"
	"testing"

	"github.com/okian/matchday/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("Then it validates", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When train_split is out of range", func() {
			cfg.TrainSplit = 1

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When decay is zero", func() {
			cfg.Decay = 0
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When rho is negative", func() {
			cfg.Rho = -0.1
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When max_goals is zero", func() {
			cfg.MaxGoals = 0
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When the dedup policy is unknown", func() {
			cfg.GoalDedup = "vendor_x"
			err := cfg.Validate()

			convey.Convey("Then the policy is named in the error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "vendor_x")
			})
		})
	})
}
