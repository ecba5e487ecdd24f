package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Template blueprint tables
			CREATE TABLE workflow_templates (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_templates_created_at ON workflow_templates(created_at);

			CREATE TABLE template_stages (
				id UUID PRIMARY KEY,
				template_id UUID NOT NULL REFERENCES workflow_templates(id) ON DELETE CASCADE,
				name VARCHAR(255) NOT NULL,
				position INT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_template_stages_template_id ON template_stages(template_id);
			CREATE INDEX idx_template_stages_position ON template_stages(template_id, position);

			CREATE TABLE template_tasks (
				id UUID PRIMARY KEY,
				stage_id UUID NOT NULL REFERENCES template_stages(id) ON DELETE CASCADE,
				title VARCHAR(255) NOT NULL,
				position INT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_template_tasks_stage_id ON template_tasks(stage_id);

			-- Client project tables. template_id is provenance only, no FK:
			-- deleting a template must not touch existing projects.
			CREATE TABLE client_projects (
				id UUID PRIMARY KEY,
				client_id VARCHAR(255) NOT NULL,
				template_id UUID,
				name VARCHAR(255) NOT NULL,
				project_type VARCHAR(50) NOT NULL CHECK (project_type IN ('content', 'landing_page', 'automation', 'website', 'campaign', 'other')),
				status VARCHAR(50) NOT NULL CHECK (status IN ('active', 'completed', 'archived')),
				start_date VARCHAR(10),
				target_date VARCHAR(10),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_client_projects_client_id ON client_projects(client_id);
			CREATE INDEX idx_client_projects_status ON client_projects(status);
			CREATE INDEX idx_client_projects_created_at ON client_projects(created_at);

			CREATE TABLE project_stages (
				id UUID PRIMARY KEY,
				project_id UUID NOT NULL REFERENCES client_projects(id) ON DELETE CASCADE,
				name VARCHAR(255) NOT NULL,
				position INT NOT NULL DEFAULT 0,
				is_terminal BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_project_stages_project_id ON project_stages(project_id);
			CREATE INDEX idx_project_stages_position ON project_stages(project_id, position);

			CREATE TABLE project_tasks (
				id UUID PRIMARY KEY,
				project_id UUID NOT NULL REFERENCES client_projects(id) ON DELETE CASCADE,
				stage_id UUID NOT NULL REFERENCES project_stages(id) ON DELETE CASCADE,
				title VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				position INT NOT NULL DEFAULT 0,
				due_date VARCHAR(10),
				priority VARCHAR(10) NOT NULL CHECK (priority IN ('low', 'medium', 'high')),
				is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
				blocked_reason TEXT NOT NULL DEFAULT '',
				visible_to_client BOOLEAN NOT NULL DEFAULT TRUE,
				links JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_project_tasks_project_id ON project_tasks(project_id);
			CREATE INDEX idx_project_tasks_stage_id ON project_tasks(stage_id);
			CREATE INDEX idx_project_tasks_due_date ON project_tasks(due_date);
		`,
	}
}
