package wxr

import "strings"

// AttachmentIndex maps attachment post ids to their URLs
type AttachmentIndex map[string]string

// BuildAttachmentIndex scans items once and indexes every attachment with both an id and a URL.
// wp:attachment_url is preferred over guid.
func BuildAttachmentIndex(items []Item) AttachmentIndex {
	index := make(AttachmentIndex)
	for _, it := range items {
		if it.PostType != PostTypeAttachment {
			continue
		}
		url := it.AttachmentURL
		if url == "" {
			url = it.GUID
		}
		if it.PostID == "" || url == "" {
			continue
		}
		index[it.PostID] = url
	}
	return index
}

// Images resolves an item's thumbnail followed by its gallery, de-duplicated in order.
// Ids without an indexed attachment are skipped.
func (a AttachmentIndex) Images(it Item) []string {
	var ids []string
	if thumb, ok := it.MetaValue(MetaThumbnailID); ok {
		ids = append(ids, strings.TrimSpace(thumb))
	}
	if gallery, ok := it.MetaValue(MetaImageGallery); ok {
		for _, id := range strings.Split(gallery, ",") {
			ids = append(ids, strings.TrimSpace(id))
		}
	}

	images := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		url, ok := a[id]
		if id == "" || !ok || seen[url] {
			continue
		}
		seen[url] = true
		images = append(images, url)
	}
	return images
}
