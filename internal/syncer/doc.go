// Package syncer rebuilds the content snapshot from the CMS. A full sync
// fans out over every feed, joins the results and publishes one new
// snapshot; a failed sync publishes nothing.
//
// Collection feeds, the main and utility menus and the homepage are
// published empty when the CMS cannot serve them. Global sections, footer
// menus and landing pages read from the live CMS are required.
package syncer
