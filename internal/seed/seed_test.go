package seed_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/askdesk/internal/adapters/repository"
	"github.com/okian/askdesk/internal/domain/model"
	"github.com/okian/askdesk/internal/seed"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefault(t *testing.T) {
	Convey("The embedded seed holds the five starter entries", t, func() {
		entries := seed.Default()
		So(entries, ShouldHaveLength, 5)
		So(entries[1].Question, ShouldEqual, "What are the tuition fees?")
		So(entries[1].Keywords, ShouldResemble, []string{"fees", "tuition", "cost", "price", "payment", "money", "scholarship"})
		So(entries[0].Keywords, ShouldContain, "entrance")
		So(entries[4].Category, ShouldEqual, "Contact")
	})
}

func TestDecode(t *testing.T) {
	Convey("Given YAML seed documents", t, func() {
		Convey("Keywords may be a comma string and category defaults", func() {
			in, err := seed.Decode(strings.NewReader(`
- question: Where is parking?
  answer: Lot B.
  keywords: "parking, car ,,lot"
`))
			So(err, ShouldBeNil)
			So(in, ShouldHaveLength, 1)
			So(in[0].Keywords, ShouldResemble, []string{"parking", "car", "lot"})
			So(in[0].Category, ShouldEqual, model.DefaultCategory)
		})

		Convey("An entry without an answer is rejected", func() {
			_, err := seed.Decode(strings.NewReader("- question: Lonely?\n"))
			So(errors.Is(err, seed.ErrSeed), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "entry 1")
		})

		Convey("Keywords of the wrong shape are rejected", func() {
			_, err := seed.Decode(strings.NewReader("- question: q\n  answer: a\n  keywords: {a: b}\n"))
			So(errors.Is(err, seed.ErrSeed), ShouldBeTrue)
		})

		Convey("An empty document yields no entries", func() {
			in, err := seed.Decode(strings.NewReader(""))
			So(err, ShouldBeNil)
			So(in, ShouldBeEmpty)
		})
	})
}

func TestLoadFileAndApply(t *testing.T) {
	Convey("Given a seed file on disk", t, func() {
		path := filepath.Join(t.TempDir(), "seed.yaml")
		So(os.WriteFile(path, []byte("- {question: Q1?, answer: A1, keywords: [x]}\n- {question: Q2?, answer: A2}\n"), 0o600), ShouldBeNil)

		inputs, err := seed.LoadFile(path)
		So(err, ShouldBeNil)

		Convey("Apply stores every entry", func() {
			store := repository.NewMemoryStore()
			n, err := seed.Apply(context.Background(), store, inputs)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)

			all, _ := store.Entries(context.Background())
			So(all, ShouldHaveLength, 2)
		})

		Convey("A missing file is reported", func() {
			_, err := seed.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
			So(errors.Is(err, seed.ErrSeed), ShouldBeTrue)
		})

		Convey("An empty path loads the embedded default", func() {
			in, err := seed.LoadFile("")
			So(err, ShouldBeNil)
			So(in, ShouldHaveLength, 5)
		})
	})
}
