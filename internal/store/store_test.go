// Copyright 2025 The Hookfeed Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mikelane/hookfeed/internal/event"
	"github.com/mikelane/hookfeed/internal/store"
)

func branch(s string) *string { return &s }

func pushAt(author, ts string) event.Record {
	return event.Record{
		RequestID: "sha-" + author,
		Author:    author,
		Action:    event.ActionPush,
		ToBranch:  "main",
		Timestamp: ts,
	}
}

// behavesLikeAStore registers the contract every backend must satisfy.
func behavesLikeAStore(open func(ctx context.Context) store.Store) {
	var (
		ctx context.Context
		st  store.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		st = open(ctx)
		DeferCleanup(func() {
			Expect(st.Close()).To(Succeed())
		})
	})

	It("pings successfully", func() {
		Expect(st.Ping(ctx)).To(Succeed())
	})

	It("returns an empty, non-nil slice when nothing is stored", func() {
		recs, err := st.Recent(ctx, store.DefaultRecentLimit)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).NotTo(BeNil())
		Expect(recs).To(BeEmpty())
	})

	Describe("Scenario: round-trip of appended records", func() {
		It("returns every field unchanged", func() {
			merge := event.Record{
				RequestID:  "e5bd3914e2e596debea16f433f57875b5b90bcd6",
				Author:     "hubot",
				Action:     event.ActionMerge,
				FromBranch: branch("feature/login"),
				ToBranch:   "main",
				Timestamp:  "2024-06-02T11:00:00+02:00",
			}
			push := pushAt("octocat", "2024-06-03T14:05:00.123456Z")

			By("appending a merge and a push")
			id, err := st.Append(ctx, merge)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).NotTo(BeEmpty())
			_, err = st.Append(ctx, push)
			Expect(err).NotTo(HaveOccurred())

			By("reading them back newest first")
			recs, err := st.Recent(ctx, store.DefaultRecentLimit)
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(Equal([]event.Record{push, merge}))
			Expect(recs[0].FromBranch).To(BeNil())
		})

		It("stores redelivered events again", func() {
			rec := pushAt("octocat", "2024-06-03T14:05:00Z")
			for i := 0; i < 2; i++ {
				_, err := st.Append(ctx, rec)
				Expect(err).NotTo(HaveOccurred())
			}

			recs, err := st.Recent(ctx, store.DefaultRecentLimit)
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(HaveLen(2))
		})
	})

	Describe("Scenario: ordering", func() {
		It("orders by timestamp instant rather than arrival or text", func() {
			By("appending out of order, with mixed offsets")
			for _, rec := range []event.Record{
				pushAt("second", "2024-06-03T10:00:00Z"),
				pushAt("third", "2024-06-03T12:30:00+02:00"), // 10:30 UTC
				pushAt("first", "2024-06-03T09:00:00Z"),
				pushAt("fourth", "2024-06-03T07:00:00-05:00"), // 12:00 UTC
			} {
				_, err := st.Append(ctx, rec)
				Expect(err).NotTo(HaveOccurred())
			}

			recs, err := st.Recent(ctx, store.DefaultRecentLimit)
			Expect(err).NotTo(HaveOccurred())
			authors := make([]string, 0, len(recs))
			for _, r := range recs {
				authors = append(authors, r.Author)
			}
			Expect(authors).To(Equal([]string{"fourth", "third", "second", "first"}))
		})

		It("breaks timestamp ties by latest insertion", func() {
			for _, author := range []string{"a", "b", "c"} {
				_, err := st.Append(ctx, pushAt(author, "2024-06-03T10:00:00Z"))
				Expect(err).NotTo(HaveOccurred())
			}

			recs, err := st.Recent(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(HaveLen(2))
			Expect(recs[0].Author).To(Equal("c"))
			Expect(recs[1].Author).To(Equal("b"))
		})
	})

	Describe("Scenario: limits", func() {
		BeforeEach(func() {
			base := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
			for i := 0; i < 25; i++ {
				ts := base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339)
				_, err := st.Append(ctx, pushAt(fmt.Sprintf("user-%02d", i), ts))
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("returns at most the default limit, newest first", func() {
			recs, err := st.Recent(ctx, store.DefaultRecentLimit)
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(HaveLen(store.DefaultRecentLimit))
			Expect(recs[0].Author).To(Equal("user-24"))
			Expect(recs[19].Author).To(Equal("user-05"))
		})

		It("returns nothing for a non-positive limit", func() {
			recs, err := st.Recent(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(BeEmpty())
		})
	})

	It("rejects records that break the invariants", func() {
		bad := pushAt("octocat", "2024-06-03T10:00:00Z")
		bad.FromBranch = branch("feature")

		_, err := st.Append(ctx, bad)
		Expect(err).To(MatchError(event.ErrInvalidRecord))

		recs, err := st.Recent(ctx, store.DefaultRecentLimit)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(BeEmpty())
	})

	It("accepts concurrent appends", func() {
		var wg sync.WaitGroup
		errs := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := st.Append(ctx, pushAt(fmt.Sprintf("user-%d", i), "2024-06-03T10:00:00Z"))
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			Expect(err).NotTo(HaveOccurred())
		}

		recs, err := st.Recent(ctx, store.DefaultRecentLimit)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(10))
	})
}

var _ = Describe("Memory store", func() {
	behavesLikeAStore(func(context.Context) store.Store {
		return store.NewMemory()
	})

	It("does not share record pointers with callers", func() {
		st := store.NewMemory()
		rec := event.Record{
			Action: event.ActionPullRequest, FromBranch: branch("feature"),
			ToBranch: "main", Timestamp: "2024-06-03T10:00:00Z",
		}
		_, err := st.Append(context.Background(), rec)
		Expect(err).NotTo(HaveOccurred())

		*rec.FromBranch = "mutated"

		recs, err := st.Recent(context.Background(), 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(*recs[0].FromBranch).To(Equal("feature"))
		Expect(st.Len()).To(Equal(1))
	})
})

var _ = Describe("SQLite store", func() {
	behavesLikeAStore(func(ctx context.Context) store.Store {
		path := filepath.Join(GinkgoT().TempDir(), "data", "events.db")
		st, err := store.Open(ctx, "sqlite://"+path)
		Expect(err).NotTo(HaveOccurred())
		return st
	})

	It("keeps records across reopen", func() {
		ctx := context.Background()
		uri := "sqlite://" + filepath.Join(GinkgoT().TempDir(), "events.db")

		st, err := store.Open(ctx, uri)
		Expect(err).NotTo(HaveOccurred())
		_, err = st.Append(ctx, pushAt("octocat", "2024-06-03T10:00:00Z"))
		Expect(err).NotTo(HaveOccurred())
		Expect(st.Close()).To(Succeed())

		reopened, err := store.Open(ctx, uri)
		Expect(err).NotTo(HaveOccurred())
		defer reopened.Close()

		recs, err := reopened.Recent(ctx, store.DefaultRecentLimit)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(1))

		version, dirty, err := store.MigrationVersion(uri)
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeEquivalentTo(1))
		Expect(dirty).To(BeFalse())
	})

	It("reports the backend unavailable once closed", func() {
		ctx := context.Background()
		st, err := store.Open(ctx, "sqlite://"+filepath.Join(GinkgoT().TempDir(), "events.db"))
		Expect(err).NotTo(HaveOccurred())
		Expect(st.Close()).To(Succeed())

		_, err = st.Append(ctx, pushAt("octocat", "2024-06-03T10:00:00Z"))
		Expect(errors.Is(err, store.ErrUnavailable)).To(BeTrue())
	})
})

var _ = Describe("PostgreSQL store", func() {
	behavesLikeAStore(func(ctx context.Context) store.Store {
		uri := os.Getenv("HOOKFEED_TEST_POSTGRES_URL")
		if uri == "" {
			Skip("HOOKFEED_TEST_POSTGRES_URL not set")
		}
		// start every spec from an empty schema
		_ = store.MigrateDown(uri, 1)
		st, err := store.Open(ctx, uri)
		Expect(err).NotTo(HaveOccurred())
		return st
	})
})

var _ = Describe("Unconfigured store", func() {
	It("fails every call with ErrNotConfigured", func() {
		ctx := context.Background()
		st, err := store.Open(ctx, "")
		Expect(err).NotTo(HaveOccurred())

		_, err = st.Append(ctx, pushAt("octocat", "2024-06-03T10:00:00Z"))
		Expect(err).To(MatchError(store.ErrNotConfigured))
		Expect(errors.Is(err, store.ErrUnavailable)).To(BeTrue())

		_, err = st.Recent(ctx, store.DefaultRecentLimit)
		Expect(err).To(MatchError(store.ErrNotConfigured))
		Expect(st.Ping(ctx)).To(MatchError(store.ErrUnavailable))
		Expect(st.Close()).To(Succeed())
	})

	It("rejects unknown schemes", func() {
		_, err := store.Open(context.Background(), "mongodb://localhost:27017/events")
		Expect(err).To(MatchError(ContainSubstring(`unsupported event store scheme "mongodb"`)))
	})
})
