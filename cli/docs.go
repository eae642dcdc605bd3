package cli

import (
	"fmt"

	"minder/docs"
)

// DocsSearch prints the names of topics matching the query.
func DocsSearch(query string) error {
	names := docs.Search(query)
	if len(names) == 0 {
		fmt.Printf("no topics match %q\n", query)
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

// DocsShow prints one topic's body.
func DocsShow(name string) error {
	topic, err := docs.Get(name)
	if err != nil {
		return err
	}
	fmt.Print(topic.Body)
	return nil
}
