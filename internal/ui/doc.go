// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI shows three tabs over the shared store:
//  1. [LibraryTab] : books already read, with tags and read dates
//  2. [WishlistTab] : books to read; m marks the selected one as read today
//  3. [RecommendationsTab] : recent releases by followed authors and topics
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Recommendation progress flows through a channel from the [tasks.Recommender], providing non-blocking status reporting.
//
// Every refresh is tagged with a [tasks.Generation] token. A result whose token is no longer current is dropped,
// so a slow response never replaces a newer one.
//
// Keyboard navigation uses vim-style bindings (j/k, tab, m, d, r, +/-, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
