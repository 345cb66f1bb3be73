package metadata

/** @brief Describes a unit of work for the job system. */
type JobTask struct {
	/** @brief Name used in logs. */
	Name string
	/** @brief Runs on a worker goroutine. Required. */
	OnStart func(params interface{}) (interface{}, error)
	/** @brief Data passed to OnStart. */
	InputParams interface{}
	/** @brief Invoked on the worker with the result of a successful OnStart. Optional. */
	OnComplete func(result interface{})
	/** @brief Invoked on the worker when OnStart fails. Optional. */
	OnFailure func(err error)
}
