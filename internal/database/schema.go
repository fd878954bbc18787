package database

const schema = `
CREATE TABLE IF NOT EXISTS users (
    email VARCHAR(255) PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    role VARCHAR(32) NOT NULL DEFAULT 'user',
    password_hash VARCHAR(255) NOT NULL,
    avatar_url VARCHAR(512),
    level INT NOT NULL DEFAULT 1,
    xp INT NOT NULL DEFAULT 0,
    credits INT NOT NULL DEFAULT 5,
    achievements JSON,
    plan VARCHAR(32) NOT NULL DEFAULT 'freemium',
    monthly_credits INT NOT NULL DEFAULT 5,
    next_billing_at TIMESTAMP NULL,
    last_login_at TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS history_items (
    id VARCHAR(64) PRIMARY KEY,
    user_email VARCHAR(255) NOT NULL,
    tool VARCHAR(32) NOT NULL,
    prompt TEXT NOT NULL,
    media_url VARCHAR(1024),
    payload MEDIUMTEXT,
    tags JSON,
    folder_id VARCHAR(64),
    created_at TIMESTAMP(6) DEFAULT CURRENT_TIMESTAMP(6),
    INDEX idx_history_user (user_email, created_at),
    FOREIGN KEY (user_email) REFERENCES users(email) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS todo_items (
    id VARCHAR(64) PRIMARY KEY,
    user_email VARCHAR(255) NOT NULL,
    title VARCHAR(512) NOT NULL,
    due_date DATE NOT NULL,
    reminder VARCHAR(16) NOT NULL DEFAULT 'none',
    completed TINYINT(1) NOT NULL DEFAULT 0,
    xp_granted TINYINT(1) NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    INDEX idx_todo_user (user_email),
    FOREIGN KEY (user_email) REFERENCES users(email) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS billing_entries (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    user_email VARCHAR(255) NOT NULL,
    description VARCHAR(512) NOT NULL,
    amount_cents INT NOT NULL,
    currency VARCHAR(8) NOT NULL DEFAULT 'USD',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_billing_user (user_email),
    FOREIGN KEY (user_email) REFERENCES users(email) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS payment_methods (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    user_email VARCHAR(255) NOT NULL,
    brand VARCHAR(32) NOT NULL,
    last4 VARCHAR(4) NOT NULL,
    exp_month INT NOT NULL,
    exp_year INT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_payment_user (user_email),
    FOREIGN KEY (user_email) REFERENCES users(email) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS notifications (
    id VARCHAR(64) PRIMARY KEY,
    user_email VARCHAR(255) NOT NULL,
    kind VARCHAR(32) NOT NULL,
    message VARCHAR(1024) NOT NULL,
    seen TINYINT(1) NOT NULL DEFAULT 0,
    created_at TIMESTAMP(6) DEFAULT CURRENT_TIMESTAMP(6),
    INDEX idx_notification_user (user_email, seen),
    FOREIGN KEY (user_email) REFERENCES users(email) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS user_slices (
    user_email VARCHAR(255) NOT NULL,
    slice VARCHAR(64) NOT NULL,
    payload JSON NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (user_email, slice),
    FOREIGN KEY (user_email) REFERENCES users(email) ON DELETE CASCADE
);
`
