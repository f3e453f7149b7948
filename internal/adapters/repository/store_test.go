package repository_test

import (
	"errors"
	"testing"

	"github.com/okian/olyrank/internal/adapters/repository"
	"github.com/okian/olyrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func key(season int, category string) repository.Key {
	return repository.Key{State: "OH", Team: "Solon Varsity", Season: season, Category: category}
}

func TestMemoryStore(t *testing.T) {
	Convey("Given an empty store", t, func() {
		s := repository.NewMemoryStore()

		Convey("When peeking an unknown team", func() {
			r, prior := s.Peek(key(2024, model.Overall))

			Convey("Then it reports the starting rating without creating a record", func() {
				So(r, ShouldEqual, 1500)
				So(prior, ShouldEqual, 0)
				So(s.Count(), ShouldEqual, 0)
				So(s.Snapshot(), ShouldBeEmpty)
			})
		})

		Convey("When initializing a record", func() {
			rec := s.GetOrInitialize(key(2024, model.Overall))

			Convey("Then it starts at the starting rating and is reused", func() {
				So(rec.Rating, ShouldEqual, 1500)
				So(rec.History, ShouldBeEmpty)
				So(s.GetOrInitialize(key(2024, model.Overall)), ShouldPointTo, rec)
				So(s.Count(), ShouldEqual, 1)
			})
		})

		Convey("When applying updates", func() {
			rec := s.GetOrInitialize(key(2024, model.Overall))
			err := s.Apply(rec, 1588.8675, repository.HistoryEntry{Date: "2024-01-20", Tournament: 0, Place: 1})
			So(err, ShouldBeNil)

			Convey("Then the rating is stored exactly and the history entry rounded", func() {
				So(rec.Rating, ShouldEqual, 1588.8675)
				So(rec.History, ShouldHaveLength, 1)
				So(rec.History[0].Rating, ShouldEqual, 1588.87)
			})

			Convey("Then the floor is enforced", func() {
				So(s.Apply(rec, 42, repository.HistoryEntry{Date: "2024-02-01"}), ShouldBeNil)
				So(rec.Rating, ShouldEqual, 100)
				So(rec.History[1].Rating, ShouldEqual, 100)
			})

			Convey("Then an out of order entry is rejected", func() {
				err := s.Apply(rec, 1600, repository.HistoryEntry{Date: "2024-01-01"})
				So(errors.Is(err, repository.ErrHistoryOrder), ShouldBeTrue)
				So(rec.History, ShouldHaveLength, 1)
			})

			Convey("Then peek sees the history length", func() {
				r, prior := s.Peek(key(2024, model.Overall))
				So(r, ShouldEqual, 1588.8675)
				So(prior, ShouldEqual, 1)
			})
		})

		Convey("When a team returns in a later season", func() {
			rec := s.GetOrInitialize(key(2022, "Anatomy"))
			So(s.Apply(rec, 1700, repository.HistoryEntry{Date: "2022-03-01"}), ShouldBeNil)
			rec = s.GetOrInitialize(key(2023, "Anatomy"))
			So(s.Apply(rec, 1650, repository.HistoryEntry{Date: "2023-03-01"}), ShouldBeNil)

			Convey("Then its first rating carries over from the latest earlier season", func() {
				So(s.GetOrInitialize(key(2025, "Anatomy")).Rating, ShouldEqual, 1650)
				r, prior := s.Peek(key(2024, "Anatomy"))
				So(r, ShouldEqual, 1650)
				So(prior, ShouldEqual, 0)
			})

			Convey("Then other categories still start fresh", func() {
				So(s.GetOrInitialize(key(2024, "Codebusters")).Rating, ShouldEqual, 1500)
			})

			Convey("Then earlier seasons do not see later ones", func() {
				So(s.GetOrInitialize(key(2021, "Anatomy")).Rating, ShouldEqual, 1500)
			})
		})

		Convey("When recording participation", func() {
			s.RecordParticipation("OH", "Solon Varsity", 2023, model.Overall, 40)
			s.RecordParticipation("OH", "Solon Varsity", 2023, "Anatomy", 39)
			s.RecordParticipation("OH", "Solon Varsity", 2024, model.Overall, 30)
			s.RecordParticipation("OH", "Solon Varsity", 2024, "Anatomy", 29)
			s.RecordParticipation("OH", "Solon Varsity", 2024, "Anatomy", 25)
			s.RecordParticipation("OH", "Solon Varsity", 2024, "Codebusters", 29)

			Convey("Then games accumulate and events count the latest season", func() {
				meta := s.Snapshot()["OH"]["Solon Varsity"].Meta
				So(meta.Games, ShouldEqual, 70)
				So(meta.Events, ShouldEqual, 2)
			})
		})

		Convey("When taking a snapshot", func() {
			rec := s.GetOrInitialize(key(2024, model.Overall))
			So(s.Apply(rec, 1510, repository.HistoryEntry{Date: "2024-01-01"}), ShouldBeNil)
			snap := s.Snapshot()

			Convey("Then later writes do not leak into it", func() {
				So(s.Apply(rec, 1520, repository.HistoryEntry{Date: "2024-02-01"}), ShouldBeNil)
				got := snap["OH"]["Solon Varsity"].Seasons[2024].Events[model.Overall]
				So(got.Rating, ShouldEqual, 1510)
				So(got.History, ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given custom options", t, func() {
		s := repository.NewMemoryStore(repository.WithStartingRating(1200), repository.WithFloor(300))
		rec := s.GetOrInitialize(key(2024, model.Overall))
		So(rec.Rating, ShouldEqual, 1200)
		So(s.Apply(rec, 10, repository.HistoryEntry{Date: "2024-01-01"}), ShouldBeNil)
		So(rec.Rating, ShouldEqual, 300)
	})
}
