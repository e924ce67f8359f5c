// Package alerts evaluates notification rules against every built chart and
// delivers webhooks when a rule fires or resolves. Rules reference special
// cause counts, limits, or the chart status; webhooks go to Teams, Slack, or
// a generic HTTP target.
package alerts
