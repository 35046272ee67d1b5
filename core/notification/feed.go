package notification

import "sort"

// BuildFeed merges announcements and notifications into one feed, sorted
// strictly by CreatedAt descending. Ties keep input order, announcements
// before notifications, so the merge is deterministic. Announcements are
// always read; they carry no per-user state.
func BuildFeed(anns []Announcement, notifs []Notification) []FeedItem {
	feed := make([]FeedItem, 0, len(anns)+len(notifs))
	for _, a := range anns {
		feed = append(feed, FeedItem{
			ID:        a.ID,
			Title:     a.Title,
			Body:      a.Body,
			Type:      TypeAnnouncement,
			CreatedAt: a.CreatedAt,
			IsRead:    true,
		})
	}
	for _, n := range notifs {
		feed = append(feed, FeedItem{
			ID:        n.ID,
			Title:     n.Title,
			Body:      n.Body,
			Type:      n.Type,
			CreatedAt: n.CreatedAt,
			IsRead:    n.IsRead,
			Link:      n.Link,
		})
	}
	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})
	return feed
}

// CountUnread returns the number of unread notifications. Announcements never
// contribute to the unread count.
func CountUnread(notifs []Notification) int {
	var count int
	for _, n := range notifs {
		if !n.IsRead {
			count++
		}
	}
	return count
}
