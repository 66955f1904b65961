package linguastore_test

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/hupe1980/linguastore"
	"github.com/hupe1980/linguastore/blobstore"
)

func Example() {
	ctx := context.Background()

	st, err := linguastore.OpenInMemory(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	_, _ = st.AddContent(ctx, linguastore.ContentPayload{Text: "hola", ScentDescription: "citrus"})
	_, _ = st.AddContent(ctx, linguastore.ContentPayload{Text: "adios", ScentDescription: "pine"})

	hits, err := st.SearchContentByText(ctx, "hola")
	if err != nil {
		log.Fatal(err)
	}
	for _, c := range hits {
		fmt.Println(c.ID, c.Text)
	}
	// Output: 0 hola
}

func ExampleStore_UpdateStudyGroup() {
	ctx := context.Background()

	st, err := linguastore.OpenInMemory(ctx, linguastore.WithBucketPages(1))
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	g, _ := st.CreateStudyGroup(ctx, linguastore.StudyGroupPayload{Name: "A1", Members: []string{"alice"}})
	g, _ = st.UpdateStudyGroup(ctx, g.ID, linguastore.StudyGroupPayload{Name: "A1", Members: []string{"alice", "bob"}})

	fmt.Println(g.ID, g.Name, g.Members)
	// Output: 0 A1 [alice bob]
}

func ExampleStore_GetContent_notFound() {
	ctx := context.Background()

	st, err := linguastore.OpenInMemory(ctx, linguastore.WithBucketPages(1))
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	_, err = st.GetContent(ctx, 7)
	fmt.Println(errors.Is(err, linguastore.ErrNotFound))
	fmt.Println(err)
	// Output:
	// true
	// Language learning content with id=7 not found
}

func ExampleStore_Backup() {
	ctx := context.Background()

	st, err := linguastore.OpenInMemory(ctx, linguastore.WithBucketPages(1))
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	_, _ = st.AddContent(ctx, linguastore.ContentPayload{Text: "hola"})

	bs := blobstore.NewMemoryStore()
	if _, err := st.Backup(ctx, bs, "nightly"); err != nil {
		log.Fatal(err)
	}

	infos, err := linguastore.ListBackups(ctx, bs)
	if err != nil {
		log.Fatal(err)
	}
	for _, info := range infos {
		fmt.Println(info.Name, info.Codec)
	}
	// Output: nightly cbor
}
