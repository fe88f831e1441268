/*
Package strava-sync imports Strava activities into per-athlete worksheets in a Google Sheets spreadsheet.

strava-sync can be used from the command line but is really intended to be run from a cron job to keep
each linked athlete's worksheet up to date with the athlete's Strava activities.

strava-sync supports the following commands:

  - authorise, to authorise application access to the Google Sheets spreadsheet
  - init, to create the _Metadata worksheet that maps display names to Strava athletes
  - link, to connect a Strava athlete to a display name and worksheet
  - users, to list the linked athletes
  - sync, to append an athlete's new Strava activities to the athlete's worksheet
  - export, to download an athlete's worksheet as a TSV file
*/
package stravasync
