package ranking_test

import (
	"testing"
	"time"

	"github.com/okian/olyrank/internal/domain/identity"
	"github.com/okian/olyrank/internal/domain/model"
	"github.com/okian/olyrank/internal/domain/ranking"
	"github.com/okian/olyrank/internal/domain/registry"
	. "github.com/smartystreets/goconvey/convey"
)

func places(entries []ranking.Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Place
	}
	return out
}

func TestAssignPlaces(t *testing.T) {
	Convey("Given scores with a tie at the top", t, func() {
		entries := []ranking.Entry{{Number: 3, Score: 20}, {Number: 1, Score: 10}, {Number: 2, Score: 10}}

		ranking.AssignPlaces(entries)

		Convey("Then places use competition ranking", func() {
			So(places(entries), ShouldResemble, []int{1, 1, 3})
			So(entries[0].Number, ShouldEqual, 1)
			So(entries[2].Number, ShouldEqual, 3)
		})
	})

	Convey("Given scores with a tie in the middle", t, func() {
		entries := []ranking.Entry{{Score: 5}, {Score: 7}, {Score: 7}, {Score: 7}, {Score: 9}}

		ranking.AssignPlaces(entries)

		Convey("Then the place after the tie skips ahead", func() {
			So(places(entries), ShouldResemble, []int{1, 2, 2, 2, 5})
		})
	})
}

func TestBuild(t *testing.T) {
	Convey("Given a resolved tournament", t, func() {
		rec := &model.TournamentRecord{
			Name:   "Invitational",
			Date:   time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC),
			Season: 2024,
			Teams: []model.RawTeam{
				{Number: 1, School: "Troy", State: "CA"},
				{Number: 2, School: "Solon", State: "OH"},
				{Number: 3, School: "Mason", State: "OH"},
				{Number: 4, School: "Ghost", State: "TX"},
			},
			Events: []model.EventDefinition{{Name: "Anatomy"}, {Name: "Optics"}, {Name: "Cancelled"}},
			Placings: []model.Placing{
				{Event: "Anatomy", Team: 1, Place: model.Place(1)},
				{Event: "Anatomy", Team: 2, Place: model.Place(1)},
				{Event: "Optics", Team: 1, Place: model.Place(2)},
				{Event: "Optics", Team: 3, Place: model.Place(1)},
				{Event: "Cancelled", Team: 1},
			},
		}
		res, err := identity.Resolve(rec, registry.NewSet())
		So(err, ShouldBeNil)

		overall, events := ranking.Build(rec, res)

		Convey("Then the overall ranking excludes the no-show", func() {
			So(overall.Category, ShouldEqual, model.Overall)
			So(len(overall.Entries), ShouldEqual, 3)
			for _, e := range overall.Entries {
				So(e.Number, ShouldNotEqual, 4)
			}
			So(overall.Rateable(), ShouldBeTrue)
		})

		Convey("Then overall scores order the teams", func() {
			// Troy 1+2=3, Solon 1+(2+1)=4, Mason (2+1)+1=4, Cancelled adds 1 to all.
			So(overall.Entries[0].Team.Name(), ShouldEqual, "Troy Varsity")
			So(places(overall.Entries), ShouldResemble, []int{1, 2, 2})
		})

		Convey("Then events without competitors are skipped", func() {
			So(len(events), ShouldEqual, 2)
			So(events[0].Category, ShouldEqual, "Anatomy")
			So(events[1].Category, ShouldEqual, "Optics")
		})

		Convey("Then unplaced teams take competitorCount+1 in an event", func() {
			anatomy := events[0]
			So(places(anatomy.Entries), ShouldResemble, []int{1, 1, 3})
			So(anatomy.Entries[2].Score, ShouldEqual, 3)
		})
	})

	Convey("Given a ranking with one entry", t, func() {
		r := ranking.Ranking{Entries: []ranking.Entry{{Score: 1}}}

		Convey("Then it is not rateable", func() {
			So(r.Rateable(), ShouldBeFalse)
		})
	})
}
