package importance_test

import (
	"testing"

	"github.com/okian/olyrank/internal/domain/importance"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Given tournament descriptions", t, func() {
		Convey("Then national markers are detected in any field", func() {
			So(importance.Classify("Science Olympiad National Tournament", "", ""), ShouldEqual, importance.National)
			So(importance.Classify("", "2024-05-18_nationals_c", ""), ShouldEqual, importance.National)
			So(importance.Classify("", "", "level: national championship"), ShouldEqual, importance.National)
		})

		Convey("Then state markers are detected", func() {
			So(importance.Classify("Ohio Science Olympiad State Tournament", "", ""), ShouldEqual, importance.State)
			So(importance.Classify("", "2024-04-20_oh_states_c", ""), ShouldEqual, importance.State)
		})

		Convey("Then national wins over state", func() {
			So(importance.Classify("State Tournament", "", "nationals qualifier"), ShouldEqual, importance.National)
		})

		Convey("Then anything else is regular", func() {
			tier := importance.Classify("MIT Invitational", "2024-01-27_mit_invitational_c", "level: invitational")
			So(tier, ShouldEqual, importance.Regular)
			So(tier.Championship(), ShouldBeFalse)
			So(tier.String(), ShouldEqual, "regular")
		})

		Convey("Then state and national tiers are championships", func() {
			So(importance.State.Championship(), ShouldBeTrue)
			So(importance.National.Championship(), ShouldBeTrue)
		})
	})
}
