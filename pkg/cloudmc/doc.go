// Package cloudmc is a client for multi-tenant REST backends addressed by
// service code, environment name and entity type.
//
// Operations are expressed against an entity instead of a URL:
//
//	client, err := cloudmc.New("https://api.example.com/v1", cloudmc.Options{
//	  APIKey: os.Getenv("CLOUDMC_API_KEY"),
//	})
//	instances := client.Service("compute", "prod").Entity("instances")
//	created, err := instances.Create(ctx, map[string]any{"name": "web-1"})
//	_, err = instances.Execute(ctx, "reboot", "42", nil)
//
// The built-in operations are create (POST), get (GET with id), list (GET),
// update (PUT) and delete (DELETE). Any other name passed to Entity.Do is a
// custom action sent as POST with an operation query parameter.
//
// When the backend answers with a task handle instead of a result, the
// resolver polls {endpoint}/tasks/{id} until the task succeeds or fails.
// The wait between polls and the maximum number of polls come from
// PollingConfig; a canceled context stops the polling.
package cloudmc
